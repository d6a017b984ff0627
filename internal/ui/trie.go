package ui

import (
	"unicode"

	"github.com/journeyfinder/internal/dataset"
	"github.com/journeyfinder/pkg/gtfs/models"
)

// StopTrie indexes stop names for prefix autocompletion. Lookups are
// folded to lowercase with the accented letters listed in foldedRunes
// reduced to their base letter, so "nadrazi" finds
// "Nádraží". One name maps to every stop id published under it; stations
// commonly expose one name over several platform stops.
type StopTrie struct {
	root *trieNode
}

type trieNode struct {
	// stops maps full display names terminating at this node to their
	// stop ids.
	stops    map[string][]string
	children map[rune]*trieNode
}

func newTrieNode() *trieNode {
	return &trieNode{stops: make(map[string][]string), children: make(map[rune]*trieNode)}
}

// NewStopTrie creates an empty trie.
func NewStopTrie() *StopTrie {
	return &StopTrie{root: newTrieNode()}
}

// BuildStopTrie indexes every named stop or platform in the dataset.
func BuildStopTrie(ds *dataset.Dataset) *StopTrie {
	trie := NewStopTrie()
	ds.Stops(func(stop *models.Stop) {
		if stop.StopName != "" && stop.LocationType == models.LocationStopOrPlatform {
			trie.Add(stop.StopName, stop.StopID)
		}
	})
	return trie
}

var foldedRunes = map[rune]rune{
	'á': 'a', 'ä': 'a', 'č': 'c', 'ď': 'd', 'é': 'e', 'ě': 'e', 'ë': 'e',
	'í': 'i', 'ľ': 'l', 'ň': 'n', 'ó': 'o', 'ö': 'o', 'ř': 'r', 'š': 's',
	'ť': 't', 'ú': 'u', 'ů': 'u', 'ü': 'u', 'ý': 'y', 'ž': 'z',
}

func foldRune(r rune) rune {
	r = unicode.ToLower(r)
	if folded, ok := foldedRunes[r]; ok {
		return folded
	}
	return r
}

// Add records one stop id under a display name.
func (t *StopTrie) Add(name, stopID string) {
	node := t.root
	for _, r := range name {
		r = foldRune(r)
		child, ok := node.children[r]
		if !ok {
			child = newTrieNode()
			node.children[r] = child
		}
		node = child
	}
	node.stops[name] = append(node.stops[name], stopID)
}

// Match is one autocompletion result: a display name and the stop ids
// sharing it.
type Match struct {
	Name    string
	StopIDs []string
}

// SearchPrefix returns every stop name starting with the folded prefix,
// capped at limit results. A limit of 0 means no cap.
func (t *StopTrie) SearchPrefix(prefix string, limit int) []Match {
	node := t.root
	for _, r := range prefix {
		child, ok := node.children[foldRune(r)]
		if !ok {
			return nil
		}
		node = child
	}
	var matches []Match
	node.collect(&matches, limit)
	return matches
}

func (n *trieNode) collect(matches *[]Match, limit int) {
	for name, ids := range n.stops {
		if limit > 0 && len(*matches) >= limit {
			return
		}
		*matches = append(*matches, Match{Name: name, StopIDs: ids})
	}
	for _, child := range n.children {
		if limit > 0 && len(*matches) >= limit {
			return
		}
		child.collect(matches, limit)
	}
}
