package core

// Remaining returns the samples left in a bottle once sold and reserved units
// are taken out. The capacity floor keeps the result non-negative when demand
// exceeds the nominal bottle size.
func Remaining(capacity, sold, reserved int) int {
	total := sold + reserved
	if capacity > total {
		total = capacity
	}
	return total - sold - reserved
}

// SampleSummary derives the figures of one month. A bottle with no demand is
// considered unopened and contributes nothing.
func (l *Ledger) SampleSummary(month string) SampleSummary {
	out := SampleSummary{Month: month}
	s := l.Samples[month]
	if s == nil {
		return out
	}
	out.Bottle = s.Bottle
	for _, o := range s.Orders {
		out.Quantity += o.Quantity
		if o.Paid {
			out.PaidQuantity += o.Quantity
		}
	}
	if s.Bottle != "" {
		out.Stock = l.stock(month, s, out.Quantity)
	}
	if out.Quantity == 0 {
		return out
	}
	out.Opened = true
	out.Revenue = s.Price.Times(out.PaidQuantity)
	out.TheoreticalRevenue = s.Price.Times(out.Quantity)
	out.Cost = s.Cost
	out.Margin = out.Revenue.Sub(s.Cost)
	out.TheoreticalMargin = out.TheoreticalRevenue.Sub(s.Cost)
	out.MarginRate = Ratio(out.Margin, out.Cost)
	out.CollectionRate = Ratio(out.Revenue, out.TheoreticalRevenue)
	return out
}

func (l *Ledger) stock(month string, s *MonthlySample, sold int) StockSummary {
	reserved := 0
	if a := l.Archive[month]; a != nil && a.InStock {
		reserved = ArchiveReserveUnits
	}
	rem := Remaining(SamplesPerBottle, sold, reserved)
	return StockSummary{
		Sold:        sold,
		Reserved:    reserved,
		Remaining:   rem,
		LatentValue: s.Price.Times(rem),
	}
}

// DuesSummary counts paid members; lifetime-free members always count as paid.
func (l *Ledger) DuesSummary() DuesSummary {
	out := DuesSummary{Members: len(l.Members)}
	for _, m := range l.Members {
		if l.DuesPaid(m) {
			out.Paid++
		}
	}
	out.Revenue = DuesAmount.Times(out.Paid)
	out.TheoreticalRevenue = DuesAmount.Times(out.Members)
	return out
}

// TastingSummary derives the figures of one event. Realized revenue counts
// registered members and guests who paid; the theoretical figure counts every
// registered member and every guest.
func (l *Ledger) TastingSummary(month string) TastingSummary {
	out := TastingSummary{Month: month}
	t := l.Tastings[month]
	if t == nil {
		return out
	}
	for _, p := range t.Participants {
		if !p.Registered {
			continue
		}
		out.Registered++
		if p.Paid {
			out.PaidMembers++
		}
		if p.Meal {
			out.MealMembers++
		}
	}
	out.Guests = len(t.Guests)
	for _, g := range t.Guests {
		if g.Paid {
			out.PaidGuests++
		}
		if g.Meal {
			out.MealGuests++
		}
	}
	out.Revenue = TastingFee.Times(out.PaidMembers + out.PaidGuests)
	out.TheoreticalRevenue = TastingFee.Times(out.Registered + out.Guests)
	out.Cost = MealCost.Times(out.MealMembers + out.MealGuests).Add(t.BottleCost)
	out.Margin = out.Revenue.Sub(out.Cost)
	out.TheoreticalMargin = out.TheoreticalRevenue.Sub(out.Cost)
	out.MarginRate = Ratio(out.Margin, out.Cost)
	return out
}

// Treasury is the opening balance plus every realized margin and the dues.
func (l *Ledger) Treasury() Money {
	return l.Summary().Treasury
}

// Summary derives the annual treasury and every per-month and per-event figure.
func (l *Ledger) Summary() AnnualSummary {
	out := AnnualSummary{OpeningBalance: l.OpeningBalance}
	for _, m := range SampleMonths {
		s := l.SampleSummary(m)
		out.Samples = append(out.Samples, s)
		out.SampleQuantity += s.Quantity
		out.SampleMargin = out.SampleMargin.Add(s.Margin)
		out.TheoreticalSample = out.TheoreticalSample.Add(s.TheoreticalMargin)
		out.LatentStockValue = out.LatentStockValue.Add(s.Stock.LatentValue)
	}
	out.Dues = l.DuesSummary()
	for _, m := range TastingMonths {
		t := l.TastingSummary(m)
		out.Tastings = append(out.Tastings, t)
		out.TastingMargin = out.TastingMargin.Add(t.Margin)
		out.TheoreticalTasting = out.TheoreticalTasting.Add(t.TheoreticalMargin)
	}
	for _, a := range l.Archive {
		if a != nil && a.InStock {
			out.ArchiveValue = out.ArchiveValue.Add(a.ReserveValue)
		}
	}
	out.Treasury = l.OpeningBalance.
		Add(out.SampleMargin).
		Add(out.Dues.Revenue).
		Add(out.TastingMargin)
	out.TheoreticalTreasury = l.OpeningBalance.
		Add(out.TheoreticalSample).
		Add(out.Dues.TheoreticalRevenue).
		Add(out.TheoreticalTasting)
	return out
}

// Statement builds a member's account for the year. Outstanding sums unpaid
// samples, unpaid dues and unpaid registered tastings.
func (l *Ledger) Statement(member string) (MemberStatement, error) {
	if !l.HasMember(member) {
		return MemberStatement{}, ErrUnknownMember
	}
	out := MemberStatement{Member: member, DuesPaid: l.DuesPaid(member)}
	if !out.DuesPaid {
		out.Outstanding = out.Outstanding.Add(DuesAmount)
	}
	for _, m := range SampleMonths {
		s := l.Samples[m]
		if s == nil {
			continue
		}
		o, ok := s.Orders[member]
		if !ok || o.Quantity == 0 {
			continue
		}
		line := MemberSampleLine{
			Month:    m,
			Bottle:   s.Bottle,
			Quantity: o.Quantity,
			Amount:   s.Price.Times(o.Quantity),
			Paid:     o.Paid,
		}
		if !o.Paid {
			out.Outstanding = out.Outstanding.Add(line.Amount)
		}
		out.Samples = append(out.Samples, line)
	}
	for _, m := range TastingMonths {
		t := l.Tastings[m]
		if t == nil {
			continue
		}
		p, ok := t.Participants[member]
		if !ok || !p.Registered {
			continue
		}
		if !p.Paid {
			out.Outstanding = out.Outstanding.Add(TastingFee)
		}
		out.Tastings = append(out.Tastings, MemberTastingLine{Month: m, Meal: p.Meal, Paid: p.Paid})
	}
	return out, nil
}
