// Package sign wraps the secp256k1 key material held by the development
// provider.
//
// Ring members are addressed by compressed public keys (33 bytes, hex
// without prefix, as ring-signature wallets exchange them) while accounts are
// addressed by Ethereum checksum addresses. Signer never exposes the private
// scalar; the only values derived from it are signatures and per-domain key
// images.
//
//	signer, err := sign.NewEthereumSigner(privateKeyHex)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(signer.PublicKey().Address(), signer.PublicKey())
package sign
