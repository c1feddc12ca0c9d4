package bitewise

// MaxRepresentatives is the number of representative articles per cluster.
const MaxRepresentatives = 3

// SelectRepresentatives splits cluster members into up to limit
// representatives, ordered like repDocs, followed by every other member in
// original order. Members are matched to representative documents by snippet.
// With no representative documents all members come back as the rest.
func SelectRepresentatives(members []CleanedArticle, repDocs []string, limit int) (reps, rest []CleanedArticle) {
	if limit <= 0 || limit > MaxRepresentatives {
		limit = MaxRepresentatives
	}

	picked := make([]bool, len(members))
	for _, doc := range repDocs {
		if len(reps) == limit {
			break
		}
		for i, m := range members {
			if picked[i] || m.Snippet != doc {
				continue
			}
			picked[i] = true
			reps = append(reps, m)
			if len(reps) == limit {
				break
			}
		}
	}

	rest = make([]CleanedArticle, 0, len(members)-len(reps))
	for i, m := range members {
		if !picked[i] {
			rest = append(rest, m)
		}
	}
	return reps, rest
}
