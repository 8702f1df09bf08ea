// Package devsnap is an in-process ringsig.Provider for development and
// tests.
//
// It keeps its account in a keystore, asks a Prompter wherever the real
// provider would show an approval dialog and produces self-describing
// signature artifacts that Verify can check without any other input.
//
// The artifacts are NOT anonymous: the proof is an ordinary recoverable
// secp256k1 signature, so anyone can recover the signer's key from it. The
// package exists to exercise the client protocol, not to hide signers.
package devsnap
