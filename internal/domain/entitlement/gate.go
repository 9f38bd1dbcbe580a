// Package entitlement defines the access-check collaborator. The engine
// itself never decides what a subscription allows; it asks the gate and
// treats a denial as a domain error.
package entitlement

import (
	"context"

	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// Gate answers whether an explorer may use gated content.
//
// Implementations return shared.ErrEntitlementDenied when access is
// refused and shared.ErrEntitlementUnavailable when the decision could
// not be obtained. Callers must not treat "unavailable" as "denied"
// silently: the distinction is surfaced to the client.
type Gate interface {
	// CanAccessModule checks access to one locked module.
	CanAccessModule(ctx context.Context, explorerID shared.ExplorerID, moduleID shared.ModuleID) error

	// CanAccessDrills checks access to the timed drill feature.
	CanAccessDrills(ctx context.Context, explorerID shared.ExplorerID) error
}
