// Package adapters maps each backend capability onto typed Go calls.
//
// There is one adapter per resource: Projects, TestCases, Integration, E2E,
// Regression, Smoke, Performance and Auth. Adapters build one request per
// method through the gateway and reshape the response; they never catch
// errors, so every failure reaches the caller as a *gateway.APIError.
//
// Backend naming is translated in exactly one place per resource. Projects
// and users have explicit DTOs (projectDTO, userDTO) converted to the
// models types at the boundary. Run records are heterogeneous across
// domains and are returned as models.Record after decodeRecords has
// normalized the envelope (bare array or an object wrapping the list).
// DecodeRecord reads a typed view out of a record when a caller needs one.
package adapters
