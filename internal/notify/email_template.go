package notify

const emailHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Message}}</title>
  <style>
    body {
      margin: 0;
      padding: 24px;
      background-color: #f3f4f6;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
      color: #111827;
      line-height: 1.5;
    }

    .container {
      max-width: 640px;
      margin: 0 auto;
      background: #ffffff;
      border-radius: 8px;
      border: 1px solid #e5e7eb;
      overflow: hidden;
    }

    .header {
      padding: 20px 24px;
      background: linear-gradient(135deg, #1e3a5f 0%, #2d4a3e 100%);
      color: #ffffff;
    }

    .headline {
      font-size: 22px;
      font-weight: 700;
      margin-bottom: 4px;
    }

    .badge {
      display: inline-block;
      margin-top: 8px;
      padding: 4px 10px;
      font-size: 11px;
      font-weight: 600;
      border-radius: 4px;
      background: #f97316;
      color: #ffffff;
      text-transform: uppercase;
      letter-spacing: 0.05em;
    }

    .section {
      padding: 16px 24px;
      border-top: 1px solid #f3f4f6;
    }

    .section-title {
      font-size: 11px;
      font-weight: 700;
      color: #6b7280;
      text-transform: uppercase;
      letter-spacing: 0.1em;
      margin-bottom: 12px;
    }

    .stats {
      display: table;
      width: 100%;
      text-align: center;
    }

    .stat {
      display: table-cell;
      padding: 8px;
    }

    .stat-value {
      font-size: 22px;
      font-weight: 700;
    }

    .stat-label {
      font-size: 12px;
      color: #6b7280;
    }

    .footer {
      padding: 16px 24px;
      font-size: 12px;
      color: #9ca3af;
      text-align: center;
      background: #f9fafb;
      border-top: 1px solid #f3f4f6;
    }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <div class="headline">{{.Message}}</div>
      {{if .Stopped}}
      <span class="badge">Stopped early</span>
      {{end}}
    </div>

    <div class="section">
      <div class="section-title">Announcements</div>
      <div class="stats">
        <div class="stat"><div class="stat-value">{{.Stats.Total}}</div><div class="stat-label">Total</div></div>
        <div class="stat"><div class="stat-value">{{.Stats.Checked}}</div><div class="stat-label">Checked</div></div>
        <div class="stat"><div class="stat-value">{{.Stats.Unchecked}}</div><div class="stat-label">Unchecked</div></div>
        <div class="stat"><div class="stat-value">{{.Stats.Today}}</div><div class="stat-label">Added Today</div></div>
      </div>
    </div>

    {{if not .Finished.IsZero}}
    <div class="footer">Finished {{when .}}</div>
    {{end}}
  </div>
</body>
</html>`
