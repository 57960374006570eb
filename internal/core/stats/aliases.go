package stats

// DayAggregate and MonthAggregate share one shape at different grains.
type DayAggregate = Aggregate
type MonthAggregate = Aggregate
