package routequest

import (
	"testing"

	"github.com/geoquest/routequest/internal/geo"
)

// testCourse has a start, two obstacles ~500 m apart, and a finish.
func testCourse() Course {
	return Course{
		ID:     "course1",
		Start:  geo.Point{Lat: 59.3290, Lng: 18.0680},
		Finish: geo.Point{Lat: 59.3390, Lng: 18.0680},
		Obstacles: []Obstacle{
			{ID: "obs1", Position: geo.Point{Lat: 59.3320, Lng: 18.0680}},
			{ID: "obs2", Position: geo.Point{Lat: 59.3360, Lng: 18.0680}},
		},
	}
}

func activeRun(solved ...string) Run {
	r := Run{
		ID:       "game1",
		CourseID: "course1",
		Status:   GameStatusActive,
		SolvedBy: map[string]bool{},
	}
	for _, id := range solved {
		r.SolvedBy[id] = true
	}
	return r
}

func TestEvaluatePositionAtObstacle(t *testing.T) {
	course := testCourse()

	// Standing exactly on each unsolved obstacle triggers its riddle.
	for _, o := range course.Obstacles {
		ev, ok := EvaluatePosition(course, activeRun(), o.Position)
		if o.ID == "obs1" {
			if !ok || ev.Type != EventRiddleTriggered || ev.ObstacleID != "obs1" {
				t.Errorf("at obs1: got %+v ok=%v", ev, ok)
			}
		}
	}

	// With obs1 solved, standing on obs2 triggers obs2.
	ev, ok := EvaluatePosition(course, activeRun("obs1"), course.Obstacles[1].Position)
	if !ok || ev.ObstacleID != "obs2" {
		t.Errorf("at obs2 with obs1 solved: got %+v ok=%v", ev, ok)
	}
}

func TestEvaluatePositionOutsideAllRadii(t *testing.T) {
	course := testCourse()
	far := geo.Point{Lat: 59.40, Lng: 18.20}

	if ev, ok := EvaluatePosition(course, activeRun(), far); ok {
		t.Errorf("expected no event far from course, got %+v", ev)
	}
	if ev, ok := EvaluatePosition(course, activeRun("obs1", "obs2"), far); ok {
		t.Errorf("expected no event far from finish, got %+v", ev)
	}
}

func TestEvaluatePositionCourseOrderPrecedence(t *testing.T) {
	// Two obstacles 10 m apart share a 30 m radius: both are in range,
	// the lower index must win.
	course := Course{
		RadiusM: 30,
		Start:   geo.Point{Lat: 59.0, Lng: 18.0},
		Finish:  geo.Point{Lat: 59.1, Lng: 18.0},
		Obstacles: []Obstacle{
			{ID: "first", Position: geo.Point{Lat: 59.33000, Lng: 18.0}},
			{ID: "second", Position: geo.Point{Lat: 59.33009, Lng: 18.0}},
		},
	}

	between := geo.Point{Lat: 59.330045, Lng: 18.0}
	ev, ok := EvaluatePosition(course, activeRun(), between)
	if !ok || ev.ObstacleID != "first" {
		t.Errorf("expected lowest-index obstacle, got %+v ok=%v", ev, ok)
	}

	// Once "first" is solved, the same position resolves to "second".
	ev, ok = EvaluatePosition(course, activeRun("first"), between)
	if !ok || ev.ObstacleID != "second" {
		t.Errorf("expected second obstacle after first solved, got %+v ok=%v", ev, ok)
	}
}

func TestEvaluatePositionStart(t *testing.T) {
	course := testCourse()
	run := activeRun()
	run.Status = GameStatusPending

	ev, ok := EvaluatePosition(course, run, course.Start)
	if !ok || ev.Type != EventRunStarted {
		t.Errorf("at start before run: got %+v ok=%v", ev, ok)
	}

	// A pending run near an obstacle but not the start emits nothing.
	if ev, ok := EvaluatePosition(course, run, course.Obstacles[0].Position); ok {
		t.Errorf("pending run at obstacle: expected no event, got %+v", ev)
	}
}

func TestEvaluatePositionFinish(t *testing.T) {
	course := testCourse()

	// Finish only counts once every obstacle is solved.
	if ev, ok := EvaluatePosition(course, activeRun("obs1"), course.Finish); ok {
		t.Errorf("finish with unsolved obstacles: got %+v", ev)
	}

	ev, ok := EvaluatePosition(course, activeRun("obs1", "obs2"), course.Finish)
	if !ok || ev.Type != EventFinishReached {
		t.Errorf("at finish with all solved: got %+v ok=%v", ev, ok)
	}
}

func TestEvaluatePositionFinishedRunInert(t *testing.T) {
	course := testCourse()
	run := activeRun("obs1", "obs2")
	run.Status = GameStatusFinished

	if ev, ok := EvaluatePosition(course, run, course.Finish); ok {
		t.Errorf("finished run must emit nothing, got %+v", ev)
	}
}

func TestTaskStatusTerminal(t *testing.T) {
	terminal := []TaskStatus{TaskCompleted, TaskFailed, TaskCancelled}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []TaskStatus{TaskPending, TaskRunning} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestObstacleRadiusOverride(t *testing.T) {
	course := Course{
		RadiusM: 25,
		Start:   geo.Point{Lat: 59.0, Lng: 18.0},
		Finish:  geo.Point{Lat: 59.1, Lng: 18.0},
		Obstacles: []Obstacle{
			// ~55 m away from the probe point, 60 m own radius.
			{ID: "wide", Position: geo.Point{Lat: 59.3300, Lng: 18.0}, RadiusM: 60},
		},
	}

	probe := geo.Point{Lat: 59.3305, Lng: 18.0}
	ev, ok := EvaluatePosition(course, activeRun(), probe)
	if !ok || ev.ObstacleID != "wide" {
		t.Errorf("expected per-obstacle radius to apply, got %+v ok=%v", ev, ok)
	}
}
