// Package models provides the plant/pollinator metapopulation model.
//
// [Mutualism] implements [dynamo.System]: for every (species, patch) cell it
// evaluates
//
//	dp/dt = r·p·(1 − p/Kp) + p·Σ_j γ·v_j / (1 + ha·γ·v_j)
//	dv/dt = −d·v·(1 + v/Kv) + Σ_i γ·p_i·v / (1 + ha·γ·p_i) + D·Σ_{s≠patch} (v_s − v)
//
// Both rates are pure functions of the snapshot they are given, so cells can
// be evaluated in any order or concurrently.
package models
