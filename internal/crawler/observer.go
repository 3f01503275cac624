package crawler

import "github.com/aleister1102/jsenum/internal/models"

// Observer receives crawl events as they happen. Implementations must be
// safe for concurrent use; every worker calls them directly.
type Observer interface {
	// OnDiscovered fires once per newly enqueued URL key.
	OnDiscovered(item models.WorkItem)
	// OnVisit fires right before an item is fetched.
	OnVisit(item models.WorkItem)
	// OnFetchFailed fires when an item could not be fetched.
	OnFetchFailed(item models.WorkItem, err error)
	// OnFinding fires for every recorded finding.
	OnFinding(finding models.Finding)
}

// Observers fans events out to several observers in order.
type Observers []Observer

func (o Observers) OnDiscovered(item models.WorkItem) {
	for _, obs := range o {
		obs.OnDiscovered(item)
	}
}

func (o Observers) OnVisit(item models.WorkItem) {
	for _, obs := range o {
		obs.OnVisit(item)
	}
}

func (o Observers) OnFetchFailed(item models.WorkItem, err error) {
	for _, obs := range o {
		obs.OnFetchFailed(item, err)
	}
}

func (o Observers) OnFinding(finding models.Finding) {
	for _, obs := range o {
		obs.OnFinding(finding)
	}
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnDiscovered(models.WorkItem)         {}
func (NopObserver) OnVisit(models.WorkItem)              {}
func (NopObserver) OnFetchFailed(models.WorkItem, error) {}
func (NopObserver) OnFinding(models.Finding)             {}
