package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizmate/internal/llm"
	"github.com/abhisek/quizmate/internal/store"
)

// apiKeyStorageKey is the sync-tier key holding the Gemini API key.
const apiKeyStorageKey = "apiKey"

// applyStoredKey fills an empty Gemini key from the sync tier. Keys from
// the config file or environment win.
func applyStoredKey(ctx context.Context, kv store.KV, c *llm.Config) error {
	if c.Gemini.APIKey != "" {
		return nil
	}
	var key string
	ok, err := store.GetJSON(ctx, kv, store.Sync, apiKeyStorageKey, &key)
	if err != nil || !ok {
		return err
	}
	c.Gemini.APIKey = key
	return nil
}

// saveKey writes key to the sync tier.
func saveKey(ctx context.Context, kv store.KV, key string) error {
	err := store.SetJSON(ctx, kv, store.Sync, apiKeyStorageKey, key)
	if errors.Is(err, store.ErrQuotaExceeded) {
		return fmt.Errorf("sync storage is full (%d bytes); remove unused sync entries and retry: %w",
			store.SyncQuota, err)
	}
	if err != nil {
		return fmt.Errorf("store key: %w", err)
	}
	return nil
}

func maskKey(k string) string {
	if len(k) <= 8 {
		return strings.Repeat("*", len(k))
	}
	return k[:4] + strings.Repeat("*", len(k)-8) + k[len(k)-4:]
}

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the stored Gemini API key",
}

var keySetCmd = &cobra.Command{
	Use:   "set [key]",
	Short: "Store an API key (reads stdin when no argument is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var key string
		if len(args) == 1 {
			key = args[0]
		} else {
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read key: %w", err)
			}
			key = line
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("empty key")
		}

		ctx := cmd.Context()
		e, err := openEnv(ctx, false)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := saveKey(ctx, e.kv, key); err != nil {
			return err
		}
		fmt.Println("API key saved:", maskKey(key))
		return nil
	},
}

var keyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored API key, masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx, false)
		if err != nil {
			return err
		}
		defer e.Close()

		var key string
		ok, err := store.GetJSON(ctx, e.kv, store.Sync, apiKeyStorageKey, &key)
		if err != nil {
			return fmt.Errorf("read key: %w", err)
		}
		if !ok {
			fmt.Println("No API key stored.")
			return nil
		}
		fmt.Println(maskKey(key))
		return nil
	},
}

var keyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx, false)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.kv.Remove(ctx, store.Sync, apiKeyStorageKey); err != nil {
			return fmt.Errorf("remove key: %w", err)
		}
		fmt.Println("API key removed.")
		return nil
	},
}

func init() {
	keyCmd.AddCommand(keySetCmd)
	keyCmd.AddCommand(keyShowCmd)
	keyCmd.AddCommand(keyClearCmd)
}
