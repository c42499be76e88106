// Package toolchain locates the external tools bingen drives: a
// clang-compatible compiler front end and an llvm-objcopy-compatible
// object-copy utility.
//
// A [Locator] runs an ordered chain of [Strategy] values. Strategies whose
// inputs are absent are skipped; the first one that applies decides the
// outcome, and a failure there is not handed to later strategies. All ambient inputs (environment,
// PATH lookup, helper processes, host OS) come from [Config], so discovery
// is deterministic under test.
//
// # Strategies
//
//   - [EnvOverride]: BINGEN_CLANG_PATH and BINGEN_OBJCOPY_PATH, used
//     verbatim. Setting only one of them stops discovery with
//     [ErrPartialOverride].
//   - [BrewPrefix]: `brew --prefix llvm` (default on darwin).
//   - [PathProbe]: clang / llvm-objcopy, then versioned spellings
//     (clang-13, clang-13.0, clang-130, ... down to 6) paired index by index
//     (default elsewhere).
//   - [LLVMConfig]: `llvm-config --bindir` (opt-in).
//   - [Sibling]: one named compiler; llvm-objcopy from the same directory
//     (opt-in).
//
// When discovery fails, Locate returns a [*DiscoveryError] listing each
// attempt and why it failed.
package toolchain
