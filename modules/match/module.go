package match

import (
	"context"
	"encoding/json"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Module exposes the candidate ranking as a request-reply service.
type Module struct {
	matcher *OnlineMatcher
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
)

// NewModule creates a new match module.
func NewModule(presence OnlineLister) *Module {
	return &Module{matcher: NewOnlineMatcher(presence)}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "match"
}

// RegisterServices exposes candidate lookup to other modules.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	return helper.RegisterTypedRequestReplyService(
		container,
		"find-candidates",
		json.Unmarshal,
		json.Marshal,
		m.handleFindCandidates,
	)
}

func (m *Module) handleFindCandidates(ctx context.Context, req FindCandidatesRequest, _ *mono.Msg) (FindCandidatesResponse, error) {
	candidates, err := m.matcher.FindCandidates(ctx, req.UserID, req.Goal, req.Limit)
	if err != nil {
		return FindCandidatesResponse{}, err
	}
	return FindCandidatesResponse{Candidates: candidates}, nil
}

// Start initializes the match module.
func (m *Module) Start(_ context.Context) error {
	log.Println("[match] Module started")
	return nil
}

// Stop shuts down the match module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[match] Module stopped")
	return nil
}

// Matcher returns the matcher for direct wiring by the gateway.
func (m *Module) Matcher() *OnlineMatcher {
	return m.matcher
}
