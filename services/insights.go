package services

import (
	"fmt"
	"sort"
	"strings"

	"renov-scraper/models"
	"renov-scraper/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(listings []*models.Listing) *models.InsightReport {
	report := &models.InsightReport{
		ListingsByType: make(map[models.PropertyType]int),
		ListingsByCity: make(map[string]int),
	}

	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)

	var priced []*models.Listing
	scoreTotal := 0

	for _, l := range listings {
		report.ListingsByType[l.PropertyType.Canonical()]++
		if l.Location.City != "" {
			report.ListingsByCity[l.Location.City]++
		}
		if l.Price > 0 {
			priced = append(priced, l)
		}
		scoreTotal += l.RenovationScore
	}

	report.AverageRenovationScore = round2(float64(scoreTotal) / float64(len(listings)))

	// Price stats (only listings with a known price)
	if len(priced) > 0 {
		report.PricedListings = len(priced)
		report.MinPrice = priced[0].Price
		report.MaxPrice = priced[0].Price
		report.MostExpensive = priced[0]
		total := 0
		for _, l := range priced {
			total += l.Price
			if l.Price < report.MinPrice {
				report.MinPrice = l.Price
			}
			if l.Price > report.MaxPrice {
				report.MaxPrice = l.Price
				report.MostExpensive = l
			}
		}
		report.AveragePrice = round2(float64(total) / float64(len(priced)))
	}

	// Top 5 by renovation score
	ranked := make([]*models.Listing, len(listings))
	copy(ranked, listings)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RenovationScore > ranked[j].RenovationScore
	})
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}
	report.TopRenovation = ranked

	return report
}

func (s *InsightService) Print(r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  RENOVATION LISTINGS INSIGHTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Total listings         : \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Printf("  Listings with a price  : \033[1m%d\033[0m\n", r.PricedListings)
	fmt.Printf("  Avg renovation score   : \033[1m%.2f\033[0m\n", r.AverageRenovationScore)
	fmt.Println()

	fmt.Printf("\033[1;33m  Price Statistics\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.PricedListings > 0 {
		fmt.Printf("  Average price : \033[1;32m%.0f €\033[0m\n", r.AveragePrice)
		fmt.Printf("  Minimum price : \033[1;32m%d €\033[0m\n", r.MinPrice)
		fmt.Printf("  Maximum price : \033[1;32m%d €\033[0m\n", r.MaxPrice)
	} else {
		fmt.Printf("  No price data available\n")
	}
	fmt.Println()

	if r.MostExpensive != nil {
		fmt.Printf("\033[1;33m  Most Expensive Listing\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  %s\n", truncate(r.MostExpensive.Title, 50))
		fmt.Printf("  City  : %s\n", r.MostExpensive.Location.City)
		fmt.Printf("  Price : \033[1;31m%d €\033[0m\n", r.MostExpensive.Price)
		fmt.Println()
	}

	fmt.Printf("\033[1;33m  Top 5 Renovation Opportunities\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.TopRenovation) == 0 {
		fmt.Printf("  No listings found\n")
	} else {
		for i, l := range r.TopRenovation {
			fmt.Printf("  \033[1m%d.\033[0m %-40s \033[1;32m%3d\033[0m  %s\n",
				i+1, truncate(l.Title, 38), l.RenovationScore, strings.Join(l.RenovationKeywords, ", "))
		}
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Listings by Property Type\033[0m\n")
	fmt.Printf("  %s\n", thin)
	printCounts(stringKeys(r.ListingsByType))
	fmt.Println()

	fmt.Printf("\033[1;33m  Listings by City\033[0m\n")
	fmt.Printf("  %s\n", thin)
	printCounts(r.ListingsByCity)

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func stringKeys(m map[models.PropertyType]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

func printCounts(counts map[string]int) {
	if len(counts) == 0 {
		fmt.Printf("  No data\n")
		return
	}

	type keyCount struct {
		key   string
		count int
	}
	var rows []keyCount
	for k, n := range counts {
		rows = append(rows, keyCount{k, n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].key < rows[j].key
	})
	for _, row := range rows {
		bar := strings.Repeat("█", row.count)
		fmt.Printf("  %-30s %s (%d)\n", truncate(row.key, 28), bar, row.count)
	}
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
