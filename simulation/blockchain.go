package simulation

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"lukechampine.com/blake3"
)

const HashLength = 32

type Hash [HashLength]byte

type BlockNonce [8]byte

// EncodeNonce converts the given integer to a block nonce.
func EncodeNonce(i uint64) BlockNonce {
	var n BlockNonce
	binary.BigEndian.PutUint64(n[:], i)
	return n
}

// Bytes returns the raw bytes of the block nonce
func (n BlockNonce) Bytes() []byte {
	return n[:]
}

// Uint64 returns the integer value of a block nonce.
func (n BlockNonce) Uint64() uint64 {
	return binary.BigEndian.Uint64(n[:])
}

// SetBytes sets the hash to the value of b.
// If b is larger than len(h), b will be cropped from the left.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-HashLength:]
	}

	copy(h[HashLength-len(b):], b)
}

func (h Hash) String() string {
	enc := make([]byte, len(h[:])*2+2)
	copy(enc, "0x")
	hex.Encode(enc[2:], h[:])
	return string(enc)
}

func (h Hash) Bytes() []byte {
	return h[:]
}

// LeadingZeros returns the number of leading zero characters in the hex
// form of the hash, which is what the difficulty predicate counts.
func (h Hash) LeadingZeros() int {
	zeros := 0
	for _, b := range h {
		if b>>4 != 0 {
			return zeros
		}
		zeros++
		if b&0x0f != 0 {
			return zeros
		}
		zeros++
	}
	return zeros
}

// MeetsDifficulty reports whether the hash clears the required
// leading-zero prefix.
func (h Hash) MeetsDifficulty(difficulty int) bool {
	return h.LeadingZeros() >= difficulty
}

// Owner tags which party sealed a block. The genesis block belongs to
// neither party and is excluded from all accounting.
type Owner uint8

const (
	GenesisOwner Owner = iota
	HonestOwner
	AdversaryOwner
)

func (o Owner) String() string {
	switch o {
	case GenesisOwner:
		return "genesis"
	case HonestOwner:
		return "honest"
	case AdversaryOwner:
		return "adversary"
	default:
		return "unknown"
	}
}

type Block struct {
	parentHash Hash
	number     uint64
	owner      Owner
	time       uint64
	nonce      BlockNonce
}

func GenesisBlock() *Block {
	return &Block{
		parentHash: Hash{},
		number:     0,
		owner:      GenesisOwner,
	}
}

// PendingBlock returns an unsealed child of b for the given owner. The
// nonce is fixed later by the sealing engine.
func (b *Block) PendingBlock(owner Owner, time uint64) *Block {
	return &Block{
		parentHash: b.Hash(),
		number:     b.Number() + 1,
		owner:      owner,
		time:       time,
	}
}

func CopyBlock(block *Block) *Block {
	cpy := &Block{}
	cpy.parentHash = block.parentHash
	cpy.number = block.number
	cpy.owner = block.owner
	cpy.time = block.time
	cpy.nonce = block.nonce
	return cpy
}

// Hash commits to the seal data together with the nonce found by the
// engine. Deterministic given the block contents.
func (b *Block) Hash() (hash Hash) {
	sealHash := b.SealHash().Bytes()
	var hData [40]byte
	copy(hData[:], b.Nonce().Bytes())
	copy(hData[len(b.nonce):], sealHash)
	sum := blake3.Sum256(hData[:])
	hash.SetBytes(sum[:])
	return hash
}

// SealHash commits to the ordered block fields that the nonce search
// does not vary.
func (b *Block) SealHash() (hash Hash) {
	sealData := struct {
		ParentHash Hash
		Number     uint64
		Owner      Owner
		Time       uint64
	}{
		ParentHash: b.ParentHash(),
		Number:     b.Number(),
		Owner:      b.Owner(),
		Time:       b.Time(),
	}
	buf := bytes.Buffer{}
	e := gob.NewEncoder(&buf)
	err := e.Encode(sealData)
	if err != nil {
		panic(fmt.Sprintf("failed gob Encode: %v", err))
	}
	data := buf.Bytes()
	sum := blake3.Sum256(data[:])
	hash.SetBytes(sum[:])
	return hash
}

func (b *Block) ParentHash() Hash {
	return b.parentHash
}

func (b *Block) Number() uint64 {
	return b.number
}

func (b *Block) Owner() Owner {
	return b.owner
}

func (b *Block) Nonce() BlockNonce {
	return b.nonce
}

func (b *Block) Time() uint64 {
	return b.time
}

func (b *Block) SetNonce(nonce BlockNonce) {
	b.nonce = nonce
}

func (b *Block) String() string {
	return fmt.Sprintf("{ ParentHash: %v, Number: %v, Owner: %v, Nonce: %v, Time: %v}", b.ParentHash(), b.Number(), b.Owner(), b.Nonce(), b.Time())
}

// Chain is an append-only block sequence rooted at the genesis block.
// Chains are never shared between observers: every promotion hands out
// a full copy instead of aliasing.
type Chain struct {
	blocks []*Block
}

func NewChain() *Chain {
	return &Chain{blocks: []*Block{GenesisBlock()}}
}

func (c *Chain) Append(b *Block) {
	c.blocks = append(c.blocks, b)
}

func (c *Chain) Tip() *Block {
	return c.blocks[len(c.blocks)-1]
}

// Len returns the block count including genesis.
func (c *Chain) Len() int {
	return len(c.blocks)
}

// Height returns the block count excluding genesis.
func (c *Chain) Height() int {
	return len(c.blocks) - 1
}

func (c *Chain) Block(i int) *Block {
	return c.blocks[i]
}

// Copy returns a deep copy of the chain.
func (c *Chain) Copy() *Chain {
	cpy := &Chain{blocks: make([]*Block, len(c.blocks))}
	for i, b := range c.blocks {
		cpy.blocks[i] = CopyBlock(b)
	}
	return cpy
}

// Prefix returns a deep copy of the first n blocks.
func (c *Chain) Prefix(n int) *Chain {
	cpy := &Chain{blocks: make([]*Block, n)}
	for i := 0; i < n; i++ {
		cpy.blocks[i] = CopyBlock(c.blocks[i])
	}
	return cpy
}

// Verify checks the parent linkage invariant over the whole chain.
func (c *Chain) Verify() error {
	if len(c.blocks) == 0 {
		return fmt.Errorf("chain has no genesis block")
	}
	if c.blocks[0].Owner() != GenesisOwner {
		return fmt.Errorf("chain does not start at genesis")
	}
	for i := 1; i < len(c.blocks); i++ {
		if c.blocks[i].ParentHash() != c.blocks[i-1].Hash() {
			return fmt.Errorf("block %d parent hash %v does not link to %v", i, c.blocks[i].ParentHash(), c.blocks[i-1].Hash())
		}
	}
	return nil
}

// CountOwner returns the number of blocks sealed by the given owner.
func (c *Chain) CountOwner(owner Owner) int {
	count := 0
	for _, b := range c.blocks {
		if b.Owner() == owner {
			count++
		}
	}
	return count
}

// BlockDB records every sealed block of a trial by hash, canonical or
// not, so orphaned work can be accounted for after resolution.
type BlockDB struct {
	blocks *lru.Cache[Hash, Block]
	sealed int
}

func NewBlockDB() *BlockDB {
	bc, _ := lru.New[Hash, Block](10000)
	return &BlockDB{
		blocks: bc,
	}
}

func (db *BlockDB) Add(block *Block) {
	db.blocks.Add(block.Hash(), *CopyBlock(block))
	db.sealed++
}

func (db *BlockDB) Get(hash Hash) (*Block, bool) {
	block, ok := db.blocks.Get(hash)
	if !ok {
		return nil, false
	}
	return CopyBlock(&block), true
}

// Sealed returns the total number of blocks sealed during the trial,
// including blocks that were later orphaned.
func (db *BlockDB) Sealed() int {
	return db.sealed
}
