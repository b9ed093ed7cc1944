package shared

import "fmt"

// PeriodCloseLockKey builds the redis key guarding a period close critical
// section. Posting into the period and closing it serialize on this key.
func PeriodCloseLockKey(organizationID string, periodID int64) string {
	return fmt.Sprintf("ledger:period:%s:%d:close", organizationID, periodID)
}
