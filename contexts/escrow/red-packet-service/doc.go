// Package redpacketservice implements the red packet escrow: a creator
// deposits an amount that is split into a bounded number of random shares,
// and distinct claimants withdraw one share each until the packet is
// exhausted.
//
// Domain and application logic stay decoupled from runtime concerns through
// ports; the memory and postgres adapters provide the ledger.
package redpacketservice
