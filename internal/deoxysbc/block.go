package deoxysbc

// EncryptBlock runs the Deoxys-BC-384 encryption of a single 16-byte block
// under the given tweakey. Deoxys-BC has no published decryption use in
// Deoxys-II: the AEAD layer only ever calls the cipher in the forward
// direction, using it as a tweakable PRF, so no inverse round function is
// implemented.
func EncryptBlock(tk Tweakey, plaintext [16]byte) [16]byte {
	rtks := tk.roundTweakeys()

	state := plaintext
	addRoundTweakey(&state, rtks[0])

	for round := 1; round <= Rounds; round++ {
		subBytes(&state)
		shiftRows(&state)
		if round != Rounds {
			mixColumns(&state)
		}
		addRoundTweakey(&state, rtks[round])
	}
	return state
}
