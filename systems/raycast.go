package systems

import (
	"sync"

	"github.com/bytearena/box2d"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/steering"
)

// bodyData is attached to every mirrored box2d body.
type bodyData struct {
	id     steering.ID
	tag    steering.Tag
	radius float64
	seen   bool
}

// Box2DCaster mirrors the snapshot into a box2d world of static circles and
// answers ray queries with box2d's dynamic tree.
type Box2DCaster struct {
	mu     sync.Mutex
	world  box2d.B2World
	bodies map[steering.ID]*box2d.B2Body
}

// NewBox2DCaster creates an empty zero-gravity world.
func NewBox2DCaster() *Box2DCaster {
	return &Box2DCaster{
		world:  box2d.MakeB2World(box2d.MakeB2Vec2(0, 0)),
		bodies: make(map[steering.ID]*box2d.B2Body),
	}
}

// Sync creates, moves and destroys mirrored bodies to match the snapshot.
func (c *Box2DCaster) Sync(bodies []steering.Body) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, body := range c.bodies {
		body.GetUserData().(*bodyData).seen = false
	}

	for i := range bodies {
		b := &bodies[i]
		pos := box2d.MakeB2Vec2(b.Position.X, b.Position.Y)
		if body, ok := c.bodies[b.ID]; ok {
			data := body.GetUserData().(*bodyData)
			if data.radius == b.Radius {
				body.SetTransform(pos, 0)
				data.tag = b.Tag
				data.seen = true
				continue
			}
			c.world.DestroyBody(body)
		}
		c.bodies[b.ID] = c.createBody(b, pos)
	}

	for id, body := range c.bodies {
		if !body.GetUserData().(*bodyData).seen {
			c.world.DestroyBody(body)
			delete(c.bodies, id)
		}
	}
}

func (c *Box2DCaster) createBody(b *steering.Body, pos box2d.B2Vec2) *box2d.B2Body {
	bodydef := box2d.MakeB2BodyDef()
	bodydef.Type = box2d.B2BodyType.B2_staticBody
	bodydef.Position = pos

	body := c.world.CreateBody(&bodydef)

	shape := box2d.MakeB2CircleShape()
	shape.SetRadius(b.Radius)

	fixturedef := box2d.MakeB2FixtureDef()
	fixturedef.Shape = &shape
	body.CreateFixtureFromDef(&fixturedef)
	body.SetUserData(&bodyData{id: b.ID, tag: b.Tag, radius: b.Radius, seen: true})
	return body
}

// Len returns the number of mirrored bodies.
func (c *Box2DCaster) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bodies)
}

// Cast returns the closest matching fixture along the ray.
func (c *Box2DCaster) Cast(origin, dir r2.Vec, maxDist float64, filter steering.Tag) steering.Intersection {
	c.mu.Lock()
	defer c.mu.Unlock()

	end := r2.Add(origin, r2.Scale(maxDist, dir))
	var best steering.Intersection
	c.world.RayCast(
		func(fixture *box2d.B2Fixture, point box2d.B2Vec2, normal box2d.B2Vec2, fraction float64) float64 {
			data, ok := fixture.GetBody().GetUserData().(*bodyData)
			if !ok || !data.tag.Matches(filter) {
				return -1 // ignore this fixture
			}
			best = steering.Intersection{
				Valid:    true,
				ID:       data.id,
				Position: r2.Vec{X: point.X, Y: point.Y},
				Normal:   r2.Vec{X: normal.X, Y: normal.Y},
				Depth:    fraction * maxDist,
			}
			return fraction // clip the ray to the closest hit so far
		},
		box2d.MakeB2Vec2(origin.X, origin.Y),
		box2d.MakeB2Vec2(end.X, end.Y),
	)
	return best
}
