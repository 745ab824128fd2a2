// Package flow recovers a product-flow graph from the free-form text a
// language model returns when asked for JSON.
//
// The model output is pushed through a fixed chain of stages:
//
//	Extract → Sanitize → Rescan → Repair → ValidateStructure → Normalize → ValidateSemantics
//
// The first three stages always return some text. Repair and
// ValidateStructure fail with typed errors that match ErrPipeline. Normalize
// drops edges it cannot resolve instead of failing, and ValidateSemantics
// only reports violations. Process runs the whole chain.
//
// Every stage is a pure function of its input; none of them perform I/O or
// share state, so invocations may run concurrently without locking.
package flow
