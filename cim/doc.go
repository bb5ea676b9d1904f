// Package cim defines the CIM object model: typed values, qualifier
// declarations, classes with properties and methods, instances, and object
// paths. These are pure value types with identity and normalization rules;
// all behavior (storage, resolution, traversal) lives in package repo.
//
// Identity rules, used throughout:
//   - All CIM names (classes, properties, methods, qualifiers, keybindings)
//     compare case-insensitively while preserving their declared spelling.
//   - Namespace names are slash-trimmed and compare case-insensitively.
//   - Instance paths compare order-independently on keybindings; a keybinding
//     value may itself be an instance path (reference keys).
package cim
