package physicalswap

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestIDs(t *testing.T) {
	t.Parallel()

	chargeCode := common.HexToHash("0xAA")
	chargeHex := "0x00000000000000000000000000000000000000000000000000000000000000aa"

	require.Equal(t, chargeHex, ChargeID(chargeCode))
	require.Equal(t, chargeHex+"-3", PaymentID(chargeCode, big.NewInt(3)))
	require.Equal(t, chargeHex+"-0", PaymentID(chargeCode, new(big.Int)))

	huge, ok := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	require.True(t, ok)
	require.Equal(t, chargeHex+"-"+huge.String(), PaymentID(chargeCode, huge))

	require.Equal(t,
		"0xabcdefabcdefabcdefabcdefabcdefabcdefabcd",
		UserID(common.HexToAddress("0xABCDEFabcdefABCDEFabcdefABCDEFabcdefABCD")),
	)

	productCode := common.HexToHash("0x50524f44")
	require.Equal(t, "0x0000000000000000000000000000000000000000000000000000000050524f44", ProductID(productCode))
}
