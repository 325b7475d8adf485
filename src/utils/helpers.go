package utils

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/gosimple/slug"
)

func IsProd() bool {
	return os.Getenv("API_ENV") == "production"
}

// WithSuffix scopes a queue or topic name to the running environment.
func WithSuffix(name string) string {
	env := os.Getenv("API_ENV")
	if env == "" || IsProd() {
		return name
	}
	return fmt.Sprintf("%s-%s", name, env)
}

func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

func RideSlug(origin, destination string) string {
	return slug.Make(fmt.Sprintf("%s to %s", origin, destination))
}

// SortedUnique returns the distinct values of in, ascending.
func SortedUnique(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
