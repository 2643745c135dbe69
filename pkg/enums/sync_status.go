package enums

// SyncStatus tracks how the local cart relates to its remote record.
type SyncStatus string

const (
	// SyncStatusUnsynced means local-only state with no remote identity yet.
	SyncStatusUnsynced SyncStatus = "unsynced"
	// SyncStatusSyncing means a push is in flight.
	SyncStatusSyncing SyncStatus = "syncing"
	// SyncStatusSynced means local items mirror the last successful push.
	SyncStatusSynced SyncStatus = "synced"
	// SyncStatusStale means local state is ahead of the remote record.
	SyncStatusStale SyncStatus = "stale"
)

// String implements fmt.Stringer.
func (s SyncStatus) String() string {
	return string(s)
}
