package sol

const (
	LamportsPerSol = 1_000_000_000
	Decimals       = 9
)

func FromLamports(lamports uint64) uint64 {
	return lamports / LamportsPerSol
}

func ToLamports(sol uint64) uint64 {
	return sol * LamportsPerSol
}
