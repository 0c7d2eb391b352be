package routequest

import "github.com/geoquest/routequest/internal/geo"

type EventType string

const (
	EventRunStarted      EventType = "run_started"
	EventRiddleTriggered EventType = "riddle_triggered"
	EventFinishReached   EventType = "finish_reached"
)

// Event is the discrete outcome of a position evaluation.
type Event struct {
	Type       EventType
	ObstacleID string // set for riddle_triggered
}

// EvaluatePosition matches a live GPS reading against the course.
//
// Obstacles are checked in course order and the first unsolved one within
// its radius wins, so simultaneous proximity to two open obstacles always
// resolves to the lowest index. The engine mutates nothing; the caller is
// responsible for recording the resulting transition.
func EvaluatePosition(course Course, run Run, pos geo.Point) (Event, bool) {
	if run.Status == GameStatusFinished {
		return Event{}, false
	}

	if run.Status == GameStatusPending {
		if geo.Within(pos, course.Start, startRadius(course)) {
			return Event{Type: EventRunStarted}, true
		}
		return Event{}, false
	}

	allSolved := true
	for _, o := range course.Obstacles {
		if run.Solved(o.ID) {
			continue
		}
		allSolved = false
		if geo.Within(pos, o.Position, course.radius(o)) {
			return Event{Type: EventRiddleTriggered, ObstacleID: o.ID}, true
		}
	}

	if allSolved && geo.Within(pos, course.Finish, startRadius(course)) {
		return Event{Type: EventFinishReached}, true
	}

	return Event{}, false
}

func startRadius(c Course) float64 {
	if c.RadiusM > 0 {
		return c.RadiusM
	}
	return DefaultRadiusM
}
