package core

type (
	CategoryAmount struct {
		Category string
		Amount   Money
	}

	// BudgetStatus pairs a budget with what was actually spent in the month.
	BudgetStatus struct {
		Category string
		Limit    Money
		Spent    Money
	}

	// MonthSummary is the aggregated dashboard view for one calendar month.
	MonthSummary struct {
		Year     int
		Month    int
		Income   Money
		Expenses Money
		Net      Money
		// ByCategory breaks down expenses only, largest first.
		ByCategory []CategoryAmount
		Budgets    []BudgetStatus
	}
)
