package components

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"
)

// Faction is a relationship node. Faction entities carry no Transform.
type Faction struct {
	Name    string
	PreysOn []ecs.Entity
}

// HasFaction links a creature to its faction entity.
type HasFaction struct {
	Faction ecs.Entity
}

// Relation markers select which member set a Query or Closest refers to.
type (
	Prey     struct{}
	Predator struct{}
	Friend   struct{}
	Obstacle struct{}
)

// Relation constrains the marker types.
type Relation interface {
	Prey | Predator | Friend | Obstacle
}

// Query is the per-faction member set for one relation, rebuilt every tick.
type Query[T Relation] struct {
	Members map[ecs.Entity]struct{}
}

// NewQuery returns an empty member set.
func NewQuery[T Relation]() Query[T] {
	return Query[T]{Members: make(map[ecs.Entity]struct{})}
}

// Clear empties the set, keeping its storage.
func (q *Query[T]) Clear() {
	if q.Members == nil {
		q.Members = make(map[ecs.Entity]struct{})
		return
	}
	clear(q.Members)
}

// Add inserts e.
func (q *Query[T]) Add(e ecs.Entity) {
	if q.Members == nil {
		q.Members = make(map[ecs.Entity]struct{})
	}
	q.Members[e] = struct{}{}
}

// Contains reports membership.
func (q *Query[T]) Contains(e ecs.Entity) bool {
	_, ok := q.Members[e]
	return ok
}

// Len returns the member count.
func (q *Query[T]) Len() int {
	return len(q.Members)
}

// Closest holds the offset from the owner to its nearest target of relation T.
// Present only while a valid target exists.
type Closest[T Relation] struct {
	Target ecs.Entity // zero for obstacles
	Offset r2.Vec
}
