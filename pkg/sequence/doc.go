// Package sequence issues gap-tolerant, duplicate-free numbers per
// partition and calendar day, such as queue tickets per branch.
//
// NextAt must run inside the transaction that inserts the number. It takes
// pg_advisory_xact_lock on a key hashed from the namespace and partition,
// reads the day's maximum and returns it plus one. Concurrent callers on the
// same partition queue on the lock; different partitions do not block each
// other. The lock is released when the transaction ends, so keep the
// transaction short after calling it.
//
// Read the clock once and use that instant for the lock window and for the
// stored row:
//
//	at := gen.Now()
//	day, _ := gen.DayOf(at)
//	n, err := gen.NextAt(ctx, tx, sequence.Partition{Scope: tenantID, Key: branchID}, at)
//	// INSERT ... (branch_id, number, issued_on, issued_at) VALUES ($1, n, day, at)
package sequence
