// Package secret provides Buffer, the container for every secret value
// lockpass handles.
//
// Ownership rules:
//   - Whoever creates or receives a Buffer erases it, normally with
//     defer buf.Erase() right after acquiring it.
//   - New takes ownership of the slice it wraps; Clone hands out an
//     independent copy that the receiver must erase.
//   - A runtime cleanup zeroes buffers that become unreachable without
//     Erase, but code must not rely on it.
package secret
