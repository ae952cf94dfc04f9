package physicalswap

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ChargeID is the lowercase 0x-prefixed hex of the charge code. NFTs share it.
func ChargeID(chargeCode common.Hash) string {
	return hexutil.Encode(chargeCode[:])
}

// ProductID is the lowercase 0x-prefixed hex of the product code.
func ProductID(productCode common.Hash) string {
	return hexutil.Encode(productCode[:])
}

// UserID is the lowercase 0x-prefixed hex of the address.
func UserID(address common.Address) string {
	return strings.ToLower(address.Hex())
}

// PaymentID is "<charge id>-<payment code in decimal>".
func PaymentID(chargeCode common.Hash, paymentCode *big.Int) string {
	return ChargeID(chargeCode) + "-" + paymentCode.String()
}
