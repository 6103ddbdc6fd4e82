// Package relation serves the two-column relation editors: the assigned/available split,
// assign, unassign and drag-and-drop moves.
package relation

import (
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"fontier-admin/internal/assign"
	"fontier-admin/internal/domain"
	"fontier-admin/internal/httpx/kit"
	"fontier-admin/internal/listing"
)

// ItemRequest is the body of assign.
type ItemRequest struct {
	ID int `json:"id" validate:"gt=0"`
}

// MoveRequest is the body of a drop: which item and which column it landed in.
type MoveRequest struct {
	ID int    `json:"id" validate:"gt=0"`
	To string `json:"to" validate:"required"`
}

// View is a partition plus the per-item pending state and load errors.
type View[T any] struct {
	assign.Partition[T]
	Pending     []int    `json:"pending,omitempty"`
	CanUnassign bool     `json:"can_unassign"`
	Errors      []string `json:"errors,omitempty"`
}

// Item is the shape every relation editor lists.
type Item interface {
	domain.Identified
	domain.Named
}

// Mount registers GET base, POST base, DELETE base/:itemId and POST base/move on r.
// anchorParam names the route parameter identifying the anchor entity.
func Mount[T Item](r fiber.Router, base, anchorParam string, b *assign.Binding[T]) {
	r.Get(base, PartitionHandler(b, anchorParam))
	r.Post(base, AssignHandler(b, anchorParam))
	r.Delete(base+"/:itemId", UnassignHandler(b, anchorParam))
	r.Post(base+"/move", MoveHandler(b, anchorParam))
}

// PartitionHandler returns the split for the anchor. ?q= filters the available column
// only, the way the assignment modals search for things to add.
func PartitionHandler[T Item](b *assign.Binding[T], anchorParam string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		anchor := c.Params(anchorParam)
		p := b.Partition(c.UserContext(), anchor)
		errs := b.Errors(c.UserContext(), anchor)
		if !p.Ready && len(errs) > 0 {
			return kit.FromError(errs[0], "")
		}
		p.Available = listing.Filter(p.Available, c.Query("q"))
		pending := lo.FilterMap(append(append([]T{}, p.Assigned...), p.Available...), func(t T, _ int) (int, bool) {
			return t.Key(), b.State(anchor, t.Key()) == assign.Pending
		})
		return kit.OK(c, View[T]{
			Partition:   p,
			Pending:     pending,
			CanUnassign: b.CanUnassign(),
			Errors:      lo.Map(errs, func(e error, _ int) string { return e.Error() }),
		})
	}
}

// AssignHandler links the item in the body to the anchor.
func AssignHandler[T Item](b *assign.Binding[T], anchorParam string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ItemRequest
		if err := kit.Bind(c, &req); err != nil {
			return err
		}
		if err := b.Assign(c.UserContext(), c.Params(anchorParam), req.ID); err != nil {
			return kit.FromError(err, "")
		}
		return kit.NoContent(c)
	}
}

// UnassignHandler removes the :itemId item from the anchor.
func UnassignHandler[T Item](b *assign.Binding[T], anchorParam string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("itemId")
		if err != nil || id <= 0 {
			return kit.BadRequest("invalid id", c.Params("itemId"))
		}
		if err := b.Unassign(c.UserContext(), c.Params(anchorParam), id); err != nil {
			return kit.FromError(err, "")
		}
		return kit.NoContent(c)
	}
}

// MoveHandler applies a drop. Dropping on the current column answers moved=false.
func MoveHandler[T Item](b *assign.Binding[T], anchorParam string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req MoveRequest
		if err := kit.Bind(c, &req); err != nil {
			return err
		}
		to, err := assign.ParseSide(req.To)
		if err != nil {
			return kit.BadRequest("to must be assigned or available", req.To)
		}
		moved, err := b.Move(c.UserContext(), c.Params(anchorParam), req.ID, to)
		if err != nil {
			return kit.FromError(err, "")
		}
		return kit.OK(c, fiber.Map{"moved": moved})
	}
}
