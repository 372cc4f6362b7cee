package storage

// ApiStore defines the operations needed to serve requests. It composes
// other interfaces to provide a clear boundary for the API's data access and
// excludes review settlement.
type ApiStore interface {
	UserStore
	CampaignStore
	EngagementStore
	TransactionStore
	LedgerReader
}
