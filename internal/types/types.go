/*
Package types holds the records exchanged with the announcement API.
*/
package types

import (
	"bytes"
	"fmt"
)

// AllValues matches any type or location in Criteria.
const AllValues = "all"

// Checked is the review flag. The API encodes it as 0 or 1.
type Checked bool

func (c Checked) MarshalJSON() ([]byte, error) {
	if c {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

func (c *Checked) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "1", "true":
		*c = true
	case "0", "false", "null":
		*c = false
	default:
		return fmt.Errorf("invalid checked value %s", data)
	}
	return nil
}

// Int returns the wire value of the flag.
func (c Checked) Int() int {
	if c {
		return 1
	}
	return 0
}

type Announcement struct {
	ID          int64   `json:"id"`
	MemberID    string  `json:"member_id"`
	CompanyName string  `json:"company_name"`
	Title       string  `json:"announcement_title"`
	Description string  `json:"description"`
	Products    string  `json:"products"`
	Location    string  `json:"location"`
	Type        string  `json:"announcement_type"`
	Date        string  `json:"announcement_date"`
	URL         string  `json:"announcement_url"`
	ScrapedDate string  `json:"scraped_date"`
	Checked     Checked `json:"checked"`
	CreatedAt   string  `json:"created_at"`
}

type Stats struct {
	Total     int `json:"total"`
	Checked   int `json:"checked"`
	Unchecked int `json:"unchecked"`
	Today     int `json:"today"`
}

type ScrapeStatus struct {
	Running bool   `json:"running"`
	Message string `json:"message"`
}

// Criteria narrows the displayed announcements. It is never sent to the API.
type Criteria struct {
	Search   string
	Type     string
	Location string
}

// DefaultCriteria matches every announcement.
func DefaultCriteria() Criteria {
	return Criteria{Type: AllValues, Location: AllValues}
}
