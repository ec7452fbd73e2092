// Package clockpro implements a [Cache] using the CLOCK‑Pro replacement
// algorithm.
//
// CLOCK‑Pro is an adaptive, scan‑resistant policy that approximates LIRS
// (Low Inter-Reference Recency Set) with a single circular clock and
// three advancing hands, improving hit rates over traditional CLOCK and
// LRU at comparable cost.
//
// The following is a summary (intended for maintainers) of the
// [2005 USENIX CLOCK-Pro paper]'s four-state variant of the algorithm.
//
// Glossary and invariants:
//
//   - Descriptor
//
//     A ring node binding a key to its classification and (if resident)
//     its value.
//
//   - Cold page
//
//     A resident page on probation; evicted to Test if not re-referenced
//     before handCold reaches it.
//
//   - Hot page
//
//     A resident page with demonstrated reuse; protected by handHot
//     second-chance sweeps.
//
//   - Test page
//
//     A non-resident history entry tracking a recently evicted Cold
//     page; promoted to Hot on re-reference.
//
//   - Empty
//
//     A detached descriptor; never appears in the ring or the index.
//
//   - Ref
//
//     The reference bit. Set on cache hit; cleared by the hands.
//
// Operations:
//
//   - Eviction
//
//     When a resident Cold page is swept by handCold without a set
//     reference bit, its value is discarded and it becomes a Test page,
//     retained only as history to guide adaptation of coldCapacity.
//
//   - Promotion
//
//     A Cold page swept with its reference bit set becomes Hot. A Test
//     page re-referenced via Set is resurrected directly to Hot.
//
//   - Demotion
//
//     A Hot page swept by handHot without a set reference bit becomes
//     Cold, when the resident hot budget (capacity - coldCapacity) is
//     exceeded.
//
// Hands:
//
//   - handHot
//
//     Clears reference bits on Hot pages it sweeps (second chance) and
//     demotes unreferenced ones to Cold. Runs whenever the hot budget is
//     exceeded.
//
//   - handCold
//
//     Evicts unreferenced resident Cold pages to Test, or promotes
//     referenced ones to Hot. Runs whenever the resident budget
//     (capacity) is exceeded.
//
//   - handTest
//
//     Reclaims Test pages once countTest exceeds capacity, recycling
//     their descriptors back to the arena.
//
// Counts and targets:
//
//   - countHot + countCold ≤ capacity.
//
//     The resident budget.
//
//   - countTest ≤ capacity.
//
//     The bounded Test history.
//
//   - coldCapacity ∈ [1, capacity].
//
//     The adaptive soft target for resident Cold pages; raised on a Test
//     hit (shrinking the hot budget), lowered whenever a Test page ages
//     out (growing it).
//
// [2005 USENIX CLOCK-Pro paper]: https://www.usenix.org/conference/2005-usenix-annual-technical-conference/clock-pro-effective-improvement-clock-replacement
package clockpro
