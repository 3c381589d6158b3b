// Copyright 2020 by the Authors
// This file is part of the go-core library.
//
// The go-core library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-core library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-core library. If not, see <http://www.gnu.org/licenses/>.

package state

// Annotation is a piece of detector- or plugin-owned data riding along with
// a GlobalState. Persistent annotations are the ones worth forwarding across
// a cross-contract return.
type Annotation interface {
	// Persistent reports whether this annotation should survive a
	// DELEGATECALL/CALLCODE return into the caller's GlobalState.
	Persistent() bool
}

// AnnotationBag is a small keyed set of annotations. Keys are plugin-chosen
// strings (a detector module's name, typically).
type AnnotationBag struct {
	items map[string]Annotation
}

// NewAnnotationBag returns an empty bag.
func NewAnnotationBag() *AnnotationBag {
	return &AnnotationBag{items: make(map[string]Annotation)}
}

// Set installs or replaces an annotation under key.
func (b *AnnotationBag) Set(key string, a Annotation) { b.items[key] = a }

// Get returns the annotation at key, if any.
func (b *AnnotationBag) Get(key string) (Annotation, bool) {
	a, ok := b.items[key]
	return a, ok
}

// All returns every annotation keyed by its name. Callers must not mutate
// the map.
func (b *AnnotationBag) All() map[string]Annotation { return b.items }

// Persistent returns the subset of annotations that report Persistent()==true.
func (b *AnnotationBag) Persistent() map[string]Annotation {
	out := make(map[string]Annotation)
	for k, a := range b.items {
		if a.Persistent() {
			out[k] = a
		}
	}
	return out
}

// Clone returns a shallow copy: a new map with the same annotation values.
// Annotation values are treated as immutable once attached.
func (b *AnnotationBag) Clone() *AnnotationBag {
	cp := NewAnnotationBag()
	for k, v := range b.items {
		cp.items[k] = v
	}
	return cp
}

// Propagate copies every persistent annotation from src into dst, the
// mechanism a DELEGATECALL/CALLCODE return invokes to carry plugin state
// from the callee's final GlobalState into the caller's.
func Propagate(src, dst *GlobalState) {
	for k, a := range src.Annotations.Persistent() {
		dst.Annotations.Set(k, a)
	}
}
