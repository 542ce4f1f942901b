// Package rand generates random string sets, to exercise the repository with arbitrary content.
package rand

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oneconcern/amos/pkg/model"
)

const (
	idLetters   = "abcdefghijklmnopqrstuvwxyz0123456789_"
	textLetters = "abcdefghijklmnopqrstuvwxyzáčďéěíňóřšťúůýž"
)

var (
	onceSource sync.Once
	rgen       *rand.Rand
	randMutex  sync.Mutex
)

func seed() {
	rgen = rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec
}

func intn(n int) int {
	onceSource.Do(seed)
	randMutex.Lock()
	defer randMutex.Unlock()
	return rgen.Intn(n)
}

func pick(alphabet []rune, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteRune(alphabet[intn(len(alphabet))])
	}
	return b.String()
}

// LetterString returns a random string of n characters picked in [a-z0-9_]
func LetterString(n int) string {
	return pick([]rune(idLetters), n)
}

// Text returns a random sentence of some words, with accented letters
func Text(words int) string {
	alphabet := []rune(textLetters)
	parts := make([]string, 0, words)
	for i := 0; i < words; i++ {
		parts = append(parts, pick(alphabet, 1+intn(8)))
	}
	return strings.Join(parts, " ")
}

// StringSet returns a set of n strings with distinct random ids and texts
func StringSet(name, lang string, version model.Version, n int) *model.StringSet {
	set := model.NewStringSet(name, lang, version)
	for set.Len() < n {
		id := LetterString(4 + intn(12))
		if set.Has(id) {
			continue
		}
		set.MustAdd(model.NewString(id, Text(1+intn(6))))
	}
	return set
}
