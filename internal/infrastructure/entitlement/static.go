package entitlement

import (
	"context"

	"github.com/explo-hub/explo-progression-hub/internal/domain/entitlement"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// StaticGate is a local gate for development and single-family
// deployments without a subscription service. Everything is allowed
// unless a module is explicitly denied.
type StaticGate struct {
	deniedModules map[shared.ModuleID]bool
	drillsAllowed bool
}

// NewStaticGate creates an allow-all gate.
func NewStaticGate() *StaticGate {
	return &StaticGate{drillsAllowed: true}
}

// NewStaticGateWithDenials creates a gate denying the listed modules.
func NewStaticGateWithDenials(deniedModules []shared.ModuleID, drillsAllowed bool) *StaticGate {
	denied := make(map[shared.ModuleID]bool, len(deniedModules))
	for _, id := range deniedModules {
		denied[id] = true
	}
	return &StaticGate{deniedModules: denied, drillsAllowed: drillsAllowed}
}

// CanAccessModule implements entitlement.Gate.
func (g *StaticGate) CanAccessModule(_ context.Context, _ shared.ExplorerID, moduleID shared.ModuleID) error {
	if g.deniedModules[moduleID] {
		return shared.ErrEntitlementDenied
	}
	return nil
}

// CanAccessDrills implements entitlement.Gate.
func (g *StaticGate) CanAccessDrills(context.Context, shared.ExplorerID) error {
	if !g.drillsAllowed {
		return shared.ErrEntitlementDenied
	}
	return nil
}

var _ entitlement.Gate = (*StaticGate)(nil)
