package push

// Processor decides the effect of a push for one status outcome
type Processor interface {
	OnSuccess(state *ProcessingState)
	OnPending(state *ProcessingState)
	OnFailed(state *ProcessingState)
	OnCancel(state *ProcessingState)
}

// ProcessingHook is implemented by processors that inspect a push before dispatch
type ProcessingHook interface {
	OnProcessing(state *ProcessingState)
}

// Process runs the hook, if any, then the handler matching the request status.
// A nil processor or an unknown status leaves the state untouched.
func Process(p Processor, state *ProcessingState) {
	if p == nil {
		return
	}
	if hook, ok := p.(ProcessingHook); ok {
		hook.OnProcessing(state)
	}

	switch state.Request.Status {
	case StatusSuccess:
		p.OnSuccess(state)
	case StatusPending:
		p.OnPending(state)
	case StatusFailed:
		p.OnFailed(state)
	case StatusCancelled:
		p.OnCancel(state)
	}
}

// noopProcessor gives embedding processors do-nothing handlers
type noopProcessor struct{}

func (noopProcessor) OnSuccess(*ProcessingState) {}
func (noopProcessor) OnPending(*ProcessingState) {}
func (noopProcessor) OnFailed(*ProcessingState)  {}
func (noopProcessor) OnCancel(*ProcessingState)  {}
