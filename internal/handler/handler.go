package handler

import "erp-service/internal/gate"

var (
	trialPlanName string
	contextCache  *gate.ContextCache
)

// Init wires the handlers' shared dependencies: the plan assigned on
// self-service signup and the gate's tenant context cache, invalidated
// locally after subscription-affecting writes.
func Init(trialPlan string, cache *gate.ContextCache) {
	trialPlanName = trialPlan
	contextCache = cache
}
