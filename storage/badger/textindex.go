package badger

import (
	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/noteshelf/core"
)

// termScores computes the per-term weight of a document over its search fields.
// Each field contributes 0.5 + 0.5*tf/len for every term it contains, so a term
// present in several fields or repeated in a short field ranks higher.
func termScores(e core.Entity) map[string]float64 {
	scores := make(map[string]float64)
	for _, field := range e.SearchFields() {
		freq, total := core.TermFrequencies(field)
		if total == 0 {
			continue
		}
		for term, n := range freq {
			scores[term] += 0.5 + 0.5*float64(n)/float64(total)
		}
	}
	return scores
}

// writePostings adds the text index entries of e.
func writePostings(tx *badger.Txn, e core.Entity) error {
	for term, score := range termScores(e) {
		key := makePostingKey(e.Kind(), e.Owner(), term, e.EntityID())
		if err := tx.Set(key, encodeScore(score)); err != nil {
			return err
		}
	}
	return nil
}

// deletePostings removes the text index entries of e.
func deletePostings(tx *badger.Txn, e core.Entity) error {
	for term := range termScores(e) {
		key := makePostingKey(e.Kind(), e.Owner(), term, e.EntityID())
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// matchTerms sums posting scores per document for the given query terms.
// A document matches when it contains at least one term.
func matchTerms(tx *badger.Txn, kind core.EntityType, userID string, terms []string) (map[core.ID]float64, error) {
	scores := make(map[core.ID]float64)
	for _, term := range terms {
		if err := scanTerm(tx, makeTermPrefix(kind, userID, term), scores); err != nil {
			return nil, err
		}
	}
	return scores, nil
}

func scanTerm(tx *badger.Txn, prefix []byte, scores map[core.ID]float64) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
		item := iter.Item()
		if len(item.Key()) != len(prefix)+idSize {
			continue
		}
		id, _ := postingID(item.Key())
		err := item.Value(func(val []byte) error {
			scores[id] += decodeScore(val)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
