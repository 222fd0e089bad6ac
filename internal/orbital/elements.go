package orbital

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/nbodysim/internal/dynamo"
)

// MuSun is the Sun's gravitational parameter in AU^3/day^2.
const MuSun = 0.0002959122082855911

var ErrNotElliptic = errors.New("orbital: orbit is not elliptic")

// Elements is one catalog record. Angles are in degrees, A in AU.
type Elements struct {
	A  float64  `json:"A"`
	EC float64  `json:"EC"`
	IN float64  `json:"IN"`
	W  float64  `json:"W"`
	OM float64  `json:"OM"`
	MA float64  `json:"MA"`
	GM GravText `json:"GM"`
}

// GravText keeps the raw GM field. Catalogs write it as a string, a number
// or null.
type GravText string

func (g *GravText) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "null":
		*g = ""
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*g = GravText(str)
	default:
		*g = GravText(s)
	}
	return nil
}

// Mass derives the body mass as GM/g. A GM that does not parse as a number
// yields zero mass.
func (el Elements) Mass(g float64) float64 {
	gm, err := strconv.ParseFloat(strings.TrimSpace(string(el.GM)), 64)
	if err != nil || g == 0 {
		return 0
	}
	return gm / g
}

// State is a position/velocity pair in the engine frame. Units follow mu:
// with MuSun, AU and AU/day.
type State struct {
	Position r3.Vec
	Velocity r3.Vec
}

// ElementsToState converts orbital elements to a state vector about a
// central body with gravitational parameter mu.
func ElementsToState(el Elements, mu float64, opts KeplerOptions) (State, KeplerResult) {
	i := radians(el.IN)
	argp := radians(el.W)
	node := radians(el.OM)
	m := radians(el.MA)
	a, e := el.A, el.EC

	kr := SolveKepler(m, e, opts)
	E := kr.E

	nu := 2 * math.Atan2(math.Sqrt(1+e)*math.Sin(E/2), math.Sqrt(1-e)*math.Cos(E/2))
	r := a * (1 - e*math.Cos(E))

	xOrb := r * math.Cos(nu)
	yOrb := r * math.Sin(nu)

	h := math.Sqrt(mu * a * (1 - e*e))
	vr := (mu / h) * e * math.Sin(nu)
	vt := (mu / h) * (1 + e*math.Cos(nu))

	vxOrb := vr*math.Cos(nu) - vt*math.Sin(nu)
	vyOrb := vr*math.Sin(nu) + vt*math.Cos(nu)

	rot := newRotation(node, argp, i)
	return State{
		Position: toEngine(rot.apply(xOrb, yOrb)),
		Velocity: toEngine(rot.apply(vxOrb, vyOrb)),
	}, kr
}

// rotation maps the orbital plane into the reference frame through the
// (node, argument of periapsis, inclination) angles.
type rotation struct {
	xx, xy, yx, yy, zx, zy float64
}

func newRotation(node, argp, inc float64) rotation {
	cO, sO := math.Cos(node), math.Sin(node)
	cw, sw := math.Cos(argp), math.Sin(argp)
	ci, si := math.Cos(inc), math.Sin(inc)
	return rotation{
		xx: cO*cw - sO*sw*ci,
		xy: -(cO*sw + sO*cw*ci),
		yx: sO*cw + cO*sw*ci,
		yy: -(sO*sw - cO*cw*ci),
		zx: sw * si,
		zy: cw * si,
	}
}

func (r rotation) apply(x, y float64) r3.Vec {
	return r3.Vec{
		X: x*r.xx + y*r.xy,
		Y: x*r.yx + y*r.yy,
		Z: x*r.zx + y*r.zy,
	}
}

// toEngine remaps the right-handed orbital frame into the engine frame:
// x stays, z becomes y, y becomes z.
func toEngine(v r3.Vec) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Z, Z: v.Y}
}

func fromEngine(v r3.Vec) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Z, Z: v.Y}
}

// StateToElements recovers elliptic orbital elements from an engine-frame
// state vector. GM is left empty.
func StateToElements(s State, mu float64) Elements {
	r := fromEngine(s.Position)
	v := fromEngine(s.Velocity)

	rn := r3.Norm(r)
	v2 := r3.Norm2(v)

	h := r3.Cross(r, v)
	hn := r3.Norm(h)
	hhat := r3.Scale(1/hn, h)

	ev := r3.Scale(1/mu, r3.Sub(r3.Scale(v2-mu/rn, r), r3.Scale(r3.Dot(r, v), v)))
	e := r3.Norm(ev)
	a := 1 / (2/rn - v2/mu)
	inc := math.Acos(clamp(h.Z/hn, -1, 1))

	const eps = 1e-11
	n := r3.Vec{X: -h.Y, Y: h.X}
	node := 0.0
	if r3.Norm(n) > eps*hn {
		node = math.Atan2(n.Y, n.X)
	} else {
		n = r3.Vec{X: 1}
	}

	var argp, nu float64
	if e > eps {
		argp = math.Atan2(r3.Dot(r3.Cross(n, ev), hhat), r3.Dot(n, ev))
		nu = math.Atan2(r3.Dot(r3.Cross(ev, r), hhat), r3.Dot(ev, r))
	} else {
		// Circular: periapsis is undefined, measure from the node.
		nu = math.Atan2(r3.Dot(r3.Cross(n, r), hhat), r3.Dot(n, r))
	}

	E := 2 * math.Atan2(math.Sqrt(1-e)*math.Sin(nu/2), math.Sqrt(1+e)*math.Cos(nu/2))
	m := E - e*math.Sin(E)

	return Elements{
		A:  a,
		EC: e,
		IN: degrees(inc),
		W:  degrees(wrap(argp)),
		OM: degrees(wrap(node)),
		MA: degrees(wrap(m)),
	}
}

// Period returns the orbital period for semi-major axis a, in the time unit of mu.
func Period(a, mu float64) float64 {
	return 2 * math.Pi * math.Sqrt(a*a*a/mu)
}

// Propagate advances an elliptic two-body state analytically by dt.
func Propagate(s State, mu, dt float64, opts KeplerOptions) (State, error) {
	el := StateToElements(s, mu)
	if el.EC >= 1 || el.A <= 0 || math.IsNaN(el.A) {
		return s, ErrNotElliptic
	}
	n := math.Sqrt(mu / (el.A * el.A * el.A))
	el.MA = degrees(wrap(radians(el.MA) + n*dt))
	out, _ := ElementsToState(el, mu, opts)
	return out, nil
}

// ToBody converts elements into a minor body. mu must be in AU^3/day^2;
// the velocity is converted from AU/day to m/s.
func (el Elements) ToBody(mu, g float64, opts KeplerOptions) (dynamo.Body, KeplerResult) {
	s, kr := ElementsToState(el, mu, opts)
	return dynamo.Body{
		Position: s.Position,
		Velocity: r3.Scale(dynamo.AUInMeters/dynamo.SecondsPerDay, s.Velocity),
		Mass:     el.Mass(g),
		Collided: dynamo.NotEvaluated,
	}, kr
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }

func wrap(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
