package core

// StockSummary describes the samples left in a month's bottle.
type StockSummary struct {
	Sold        int
	Reserved    int
	Remaining   int
	LatentValue Money
}

// SampleSummary is the financial picture of one bottle of the month.
type SampleSummary struct {
	Month              string
	Bottle             string
	Quantity           int
	PaidQuantity       int
	Opened             bool
	Revenue            Money
	TheoreticalRevenue Money
	Cost               Money
	Margin             Money
	TheoreticalMargin  Money
	MarginRate         float64
	CollectionRate     float64
	Stock              StockSummary
}

// DuesSummary aggregates the annual membership fees.
type DuesSummary struct {
	Members            int
	Paid               int
	Revenue            Money
	TheoreticalRevenue Money
}

// TastingSummary is the financial picture of one tasting event.
type TastingSummary struct {
	Month              string
	Registered         int
	PaidMembers        int
	MealMembers        int
	Guests             int
	PaidGuests         int
	MealGuests         int
	Revenue            Money
	TheoreticalRevenue Money
	Cost               Money
	Margin             Money
	TheoreticalMargin  Money
	MarginRate         float64
}

// AnnualSummary is the treasury for the fiscal year.
type AnnualSummary struct {
	OpeningBalance      Money
	SampleQuantity      int
	SampleMargin        Money
	TheoreticalSample   Money
	Dues                DuesSummary
	TastingMargin       Money
	TheoreticalTasting  Money
	Treasury            Money
	TheoreticalTreasury Money
	LatentStockValue    Money
	ArchiveValue        Money
	Samples             []SampleSummary
	Tastings            []TastingSummary
}

// MemberStatement lists what one member ordered, attended and still owes.
type MemberStatement struct {
	Member      string
	DuesPaid    bool
	Samples     []MemberSampleLine
	Tastings    []MemberTastingLine
	Outstanding Money
}

type MemberSampleLine struct {
	Month    string
	Bottle   string
	Quantity int
	Amount   Money
	Paid     bool
}

type MemberTastingLine struct {
	Month string
	Meal  bool
	Paid  bool
}
