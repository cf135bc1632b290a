package domain

import "fmt"

// BalanceSnapshot은 포지션 계산 시점의 USDT 잔고를 표현합니다
type BalanceSnapshot struct {
	Asset            string  // 자산 심볼 (예: USDT)
	TotalBalance     float64 // 총 잔고
	AvailableBalance float64 // 사용 가능한 잔고
}

// Validate는 잔고 스냅샷이 유효한지 확인합니다
func (b BalanceSnapshot) Validate() error {
	if b.TotalBalance < 0 || b.AvailableBalance < 0 {
		return fmt.Errorf("잔고는 음수일 수 없습니다: 총 %.8f, 가용 %.8f", b.TotalBalance, b.AvailableBalance)
	}
	if b.AvailableBalance > b.TotalBalance {
		return fmt.Errorf("가용 잔고(%.8f)가 총 잔고(%.8f)보다 큽니다", b.AvailableBalance, b.TotalBalance)
	}
	return nil
}
