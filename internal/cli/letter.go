package cli

import (
	"crypto/rsa"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sirosfoundation/go-ebics/pkg/security"
)

func newLetterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "letter",
		Short: "Print the key hashes for the initialisation letter",
		Long: `Print the SHA-256 hashes of the subscriber's public keys as they
appear on the signed initialisation letter sent to the bank after INI and
HIA, followed by the hashes of the configured bank keys for comparison
with the bank's own letter.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := a.keyring()
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Host %s, partner %s, user %s\n\n",
				a.cfg.Bank.HostID, a.cfg.User.PartnerID, a.cfg.User.UserID)

			entries := []struct {
				name, version string
				key           *rsa.PublicKey
			}{
				{"User signature", keys.Version(), publicHalf(keys.UserSignature)},
				{"User authentication", "X002", publicHalf(keys.UserAuthentication)},
				{"User encryption", "E002", publicHalf(keys.UserEncryption)},
				{"Bank authentication", "X002", keys.BankAuthentication},
				{"Bank encryption", "E002", keys.BankEncryption},
			}
			for _, e := range entries {
				if e.key == nil {
					continue
				}
				digest, err := security.PublicKeyDigest(e.key)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s (%s, %d bit)\n  %s\n",
					e.name, e.version, e.key.N.BitLen(), security.FormatKeyDigest(digest))
			}
			return nil
		},
	}
}

func publicHalf(key *rsa.PrivateKey) *rsa.PublicKey {
	if key == nil {
		return nil
	}
	return &key.PublicKey
}
