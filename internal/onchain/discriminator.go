package onchain

import "crypto/sha256"

// discriminator computes the 8-byte Anchor instruction discriminator as the
// first 8 bytes of sha256("global:<name>"). Per SPEC_FULL §9 Open Question
// 3, this must always be computed — never a literal placeholder array.
func discriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

var (
	discInitializePool = discriminator("initialize_pool")
	discSwap           = discriminator("swap")
	discClosePool      = discriminator("close_pool")
	discCreateDuel     = discriminator("create_duel")
	discJoinDuel       = discriminator("join_duel")
	discStartDuel      = discriminator("start_duel")
	discResolveDuel    = discriminator("resolve_duel")
	discCancelDuel     = discriminator("cancel_duel")
)
