// Package dicetest provides deterministic dice sources for tests.
package dicetest

import (
	"fmt"
	"sync"
)

// Script is a dice.Source that returns a fixed sequence of face values.
// Faces are given as 1..6; IntN returns face-1. It panics when the script
// runs out, which points a failing test at an unexpected extra draw.
type Script struct {
	mu    sync.Mutex
	faces []int
	draws int
}

// NewScript returns a Script that yields faces in order.
func NewScript(faces ...int) *Script {
	return &Script{faces: faces}
}

// IntN implements dice.Source.
func (s *Script) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draws >= len(s.faces) {
		panic(fmt.Sprintf("dicetest: script exhausted after %d draws", s.draws))
	}
	face := s.faces[s.draws]
	s.draws++
	if face < 1 || face > n {
		panic(fmt.Sprintf("dicetest: face %d out of range for IntN(%d)", face, n))
	}
	return face - 1
}

// Push appends more faces to the script.
func (s *Script) Push(faces ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faces = append(s.faces, faces...)
}

// Draws reports how many values have been consumed.
func (s *Script) Draws() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draws
}
