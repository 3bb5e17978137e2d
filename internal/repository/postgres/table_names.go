package postgres

import "fmt"

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Folders     string
	Documents   string
	Shares      string
	MoveAudits  string
	Preferences string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Folders:     fmt.Sprintf("%sfolders", prefix),
		Documents:   fmt.Sprintf("%sdocuments", prefix),
		Shares:      fmt.Sprintf("%sshares", prefix),
		MoveAudits:  fmt.Sprintf("%smove_audits", prefix),
		Preferences: fmt.Sprintf("%suser_preferences", prefix),
	}
}
