// Package gpu describes the device contract the renderer is written against
// and implements the backend-independent pieces on top of it: owned resource
// handles, the fenced vertex upload and the triangle pipeline builder.
//
// Every handle type is created by a Device and must be released through the
// same Device. Owned pairs a handle with that release call so teardown code
// never has to remember which device a handle came from.
//
// Lifecycle of a vertex upload:
//  1. BeginUpload creates the device buffer and a staging transfer buffer,
//     copies the data and submits a copy pass, acquiring a Fence.
//  2. Upload.Poll is called once per frame. It never blocks.
//  3. The first Poll that observes the signalled fence releases the fence and
//     the staging buffer. From then on the device buffer may be bound.
package gpu
