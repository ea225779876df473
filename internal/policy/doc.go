// Package policy содержит правила retry и TTL.
//
//   - retry.go  — что делать с task после Fail (retry со штрафом или FAILED)
//   - expiry.go — когда task считается истёкшим и как их вычищать
//
// Истечение TTL важнее retry: истёкший task не возвращается в очередь,
// даже если попытки ещё остались.
package policy
