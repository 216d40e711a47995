package update

// Info byte bit layout, grounded on original_source/src/block_reader.rs's
// CARRIER_INFO/HAS_LEFT_ID/HAS_RIGHT_ID/HAS_PARENT_SUB constants. "left"
// and "right" in the original naming refer to the frozen origin pointers
// (origin_left/origin_right), not the block's live neighbor links — the
// live links are never serialized, only rebuilt during integration.
const (
	infoContentMask   = 0b0001_1111 // low 5 bits: ContentType, or a GC/Skip discriminant
	infoHasParentKey  = 0b0010_0000
	infoHasOriginRight = 0b0100_0000
	infoHasOriginLeft  = 0b1000_0000
)

// contentKindGC and contentKindSkip reuse otherwise-unused low bits of the
// content mask to flag a GC or Skip range rather than a real block. GC
// content type 0 coincides with block.ContentGC; skip reuses
// block.ContentSkip (10), matching spec.md §4.3's content type table so a
// GC/Skip carrier's info byte is self-describing without a second enum.
const (
	contentKindGC   = 0
	contentKindSkip = 10
)
