// Package domain models the freeze/thaw index method used to schedule spring
// breakup load restrictions on roadways.
//
// # Inputs
//
// Each surveyed point (a route milepost or a segment measure) contributes one
// daily high/low temperature series in °F, running from October 1 of the
// season start year through a few forecast days past the run date. Every day
// is paired with a reference temperature, the baseline above which a day
// counts as thawing.
//
// # Indices
//
// For each day:
//
//	average = (high + low) / 2
//	DTI     = max(0, average - reference)              daily thawing index
//	DFI     = 32 - average  if DTI == 0 and CTI[i-1] > (32 - average)/2
//	          0             otherwise                  daily freezing index
//	CFI     = CFI[i-1] + DFI                           reset to 0 on July 1
//	CTI     = max(0, CTI[i-1] + DTI - DFI/2)           restarts on January 1
//
// The first day only seeds the series: CTI starts at its own DTI and CFI at 0.
// Both resets are tied to the target year (normally the year after the season
// start) and fire at most once per scan.
//
// # Load-restriction schedule
//
// Transitions are checked every day in a fixed order and each fires once:
//
//	FREEZING_STARTED          DFI > 0
//	WINTER_LOAD_INCREASED     CFI > 280
//	THAWING_BEGINS            January 1 reset applied and CTI > 0
//	BREAKUP_LIMITS_IMPOSED    thawing began and CTI > 25; limits end 56 days later
//	NORMAL_LIMITS_RESTARTED   CTI > 25 on exactly the limits end date
//	OVERWEIGHT_PERMITS_BEGIN  14 days after normal limits restart
//
// A day keeps a single message; a later transition on the same day replaces
// an earlier one.
//
// # Rollup
//
// Points sharing a group id (a milepost range or a segment code) are reduced
// to the point with the earliest breakup date. Groups that have not broken up
// yet surface their final seven scanned days for review instead.
package domain
