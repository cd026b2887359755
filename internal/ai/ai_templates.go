package ai

import (
	"fmt"
	"strings"

	"github.com/shanehull/anndash/internal/types"
)

const systemInstruction = `
# [INSTRUCTION]

You assist an operator who reviews agricultural trade announcements (offers to buy, offers to sell,
partnership requests) collected from a B2B marketplace.

You receive the announcements the operator has not reviewed yet. Summarise them and point out the
few that deserve attention first.

---

# [CRITICAL INSTRUCTION]

- "summary" holds 3-5 short bullet points covering products, regions and kinds of request.
- "highlights" holds at most 5 entries. Each "id" MUST be one of the ids given in the input.
- Each "reason" must name a concrete product, quantity, location or date taken from the announcement.
- Do not invent announcements, companies or figures. If nothing stands out, return no highlights.
`

var userPromptTemplate = `
Summarise the following %d announcements awaiting review:
--
%s
---
`

func buildUserPrompt(anns []types.Announcement) string {
	var sb strings.Builder
	for _, a := range anns {
		fmt.Fprintf(&sb, "[id %d] %s\n", a.ID, a.Title)
		writeField(&sb, "Company", a.CompanyName)
		writeField(&sb, "Type", a.Type)
		writeField(&sb, "Location", a.Location)
		writeField(&sb, "Products", a.Products)
		writeField(&sb, "Date", a.Date)
		writeField(&sb, "Description", a.Description)
		sb.WriteString("\n")
	}

	return fmt.Sprintf(userPromptTemplate, len(anns), strings.TrimRight(sb.String(), "\n"))
}

func writeField(sb *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(sb, "  %s: %s\n", label, value)
}
