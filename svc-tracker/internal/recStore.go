package internal

import (
	"image"
	"sort"
	"sync"

	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"
)

// TrackerClient holds one KCF tracker per followed object
type TrackerClient struct {
	mu              sync.Mutex
	sourceId        string
	trackerInstance sync.Map // map[uint64]*TrackerInstance
	lastId          uint64
}

type TrackerInstance struct {
	mu      sync.Mutex
	tracker *gocv.Tracker
	store   image.Rectangle
	label   string
}

// TrackedBox is a snapshot of a tracker's last known position
type TrackedBox struct {
	Id    uint64
	Rect  image.Rectangle
	Label string
}

func NewTrackerClient(sourceId string) *TrackerClient {
	return &TrackerClient{sourceId: sourceId}
}

// Source names the video source the trackers follow.
func (tc *TrackerClient) Source() string {
	return tc.sourceId
}

func (tc *TrackerClient) DeleteInstanceAt(index uint64) {
	if i, f := tc.trackerInstance.LoadAndDelete(index); f {
		if ti, ok := i.(*TrackerInstance); ok {
			ti.deleteInstance()
		}
	}
}

func (tc *TrackerClient) AddInstance(instance *TrackerInstance) uint64 {
	if instance == nil {
		return 0
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.lastId++
	tc.trackerInstance.Store(tc.lastId, instance)
	return tc.lastId
}

// UpdateAll moves every tracker to frame and drops the ones that lost their object.
func (tc *TrackerClient) UpdateAll(frame gocv.Mat) (lost int) {
	tc.trackerInstance.Range(func(k, v any) bool {
		if !v.(*TrackerInstance).UpdateTracker(frame) {
			tc.DeleteInstanceAt(k.(uint64))
			lost++
		}
		return true
	})
	return lost
}

// Boxes returns the tracked boxes ordered by id.
func (tc *TrackerClient) Boxes() []TrackedBox {
	var out []TrackedBox
	tc.trackerInstance.Range(func(k, v any) bool {
		ti := v.(*TrackerInstance)
		ti.mu.Lock()
		out = append(out, TrackedBox{Id: k.(uint64), Rect: ti.store, Label: ti.label})
		ti.mu.Unlock()
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out
}

func (tc *TrackerClient) Close() {
	tc.trackerInstance.Range(func(k, _ any) bool {
		tc.DeleteInstanceAt(k.(uint64))
		return true
	})
}

func NewTrackerInstance(rec image.Rectangle, label string) *TrackerInstance {
	tracker := contrib.NewTrackerKCF()
	return &TrackerInstance{
		tracker: &tracker,
		store:   rec,
		label:   label,
	}
}

func (ti *TrackerInstance) InitTracker(frame gocv.Mat) bool {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	if ti.tracker != nil {
		return (*ti.tracker).Init(frame, ti.store)
	}
	return false
}

func (ti *TrackerInstance) UpdateTracker(frame gocv.Mat) bool {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	if ti.tracker != nil {
		rec, ok := (*ti.tracker).Update(frame)
		if ok {
			ti.store = rec
			return true
		}
		return false
	}
	return false
}

func (ti *TrackerInstance) deleteInstance() {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	if ti.tracker != nil {
		(*ti.tracker).Close() // release native resources
		ti.tracker = nil      // clear the pointer
	}
}
