// Package settle computes who still owes money after splitting the
// month's spending evenly between the ledger's parties.
package settle

import (
	"sort"

	"duobook/internal/core"
)

// DefaultParties is the party count of the shared ledger: two people
// settling up with each other.
const DefaultParties = 2

// epsilon absorbs sub-won noise from dividing totals by the party count.
const epsilon = 0.01

// Share is one underpaying person's outstanding amount.
type Share struct {
	ID       int64
	Nickname string
	Owed     float64
}

// Transfer is a concrete payment clearing part of the imbalance.
type Transfer struct {
	FromID       int64
	FromNickname string
	ToID         int64
	ToNickname   string
	Amount       float64
}

// Average returns the even-split target: grand total divided by the party
// count. Zero entries (or a non-positive party count) yield 0.
func Average(results []core.PersonTotal, parties int) float64 {
	if parties < 1 {
		return 0
	}
	var total int64
	for _, r := range results {
		total += r.TotalPrice
	}
	return float64(total) / float64(parties)
}

// Owed reports every entry strictly below the average with the amount it
// still owes. Entries at or above the average owe nothing and are absent
// from the result; an empty result means the settlement section should be
// suppressed entirely.
func Owed(results []core.PersonTotal, parties int) (float64, []Share) {
	average := Average(results, parties)

	var shares []Share
	for _, r := range results {
		if float64(r.TotalPrice) < average {
			shares = append(shares, Share{
				ID:       r.ID,
				Nickname: r.Nickname,
				Owed:     average - float64(r.TotalPrice),
			})
		}
	}
	return average, shares
}

// Transfers matches underpayers with overpayers into a concrete payment
// list, generalizing the even split beyond two parties.
//
// Greedy algorithm: sort debtors and creditors by amount descending, then
// repeatedly settle the largest debtor against the largest creditor. For
// two parties this degenerates to the single obvious payment.
func Transfers(results []core.PersonTotal, parties int) []Transfer {
	average := Average(results, parties)

	type balance struct {
		id       int64
		nickname string
		amount   float64 // always positive
	}

	var debtors, creditors []balance
	for _, r := range results {
		diff := float64(r.TotalPrice) - average
		switch {
		case diff < -epsilon:
			debtors = append(debtors, balance{id: r.ID, nickname: r.Nickname, amount: -diff})
		case diff > epsilon:
			creditors = append(creditors, balance{id: r.ID, nickname: r.Nickname, amount: diff})
		}
	}

	sort.Slice(debtors, func(i, j int) bool { return debtors[i].amount > debtors[j].amount })
	sort.Slice(creditors, func(i, j int) bool { return creditors[i].amount > creditors[j].amount })

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := debtors[i].amount
		if creditors[j].amount < amount {
			amount = creditors[j].amount
		}

		if amount > epsilon {
			transfers = append(transfers, Transfer{
				FromID:       debtors[i].id,
				FromNickname: debtors[i].nickname,
				ToID:         creditors[j].id,
				ToNickname:   creditors[j].nickname,
				Amount:       amount,
			})
		}

		debtors[i].amount -= amount
		creditors[j].amount -= amount

		if debtors[i].amount < epsilon {
			i++
		}
		if creditors[j].amount < epsilon {
			j++
		}
	}

	return transfers
}
