// Package main provides localization for the mcapvideo CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Signals
		"Interrupted, shutting down...": "中断されました。シャットダウン中...",

		// Convert command
		"Using encoder %s (%s)":       "エンコーダー %s (%s) を使用します",
		"Failed to write summary: %v": "サマリーの書き込みに失敗しました: %v",
		"Summary saved to %s":         "サマリーを %s に保存しました",

		"input, topic and output are required (as arguments or in the config file)": "入力、トピック、出力が必要です（引数または設定ファイルで指定）",

		// Info command
		"ID":       "ID",
		"Topic":    "トピック",
		"Schema":   "スキーマ",
		"Encoding": "エンコーディング",
		"Messages": "メッセージ数",

		// Monitor command
		"Status code: %d": "ステータスコード: %d",
		"Latest: %s":      "最終報告: %s",
		"Now: %s":         "現在時刻: %s",
		"Difference: %s":  "差分: %s",

		// Puzzle command
		"Enter first string: ":  "1つ目の文字列を入力: ",
		"Enter second string: ": "2つ目の文字列を入力: ",
		"Common letters: %s":    "共通の文字: %s",

		// Version command
		"mcapvideo version %s": "mcapvideo バージョン %s",

		// Summary labels
		"Conversion Summary":   "変換サマリー",
		"Source":               "入力",
		"MCAP File":            "MCAP ファイル",
		"Messages Read":        "読み込んだメッセージ",
		"Skipped":              "スキップ",
		"Fallback Conversions": "フォールバック変換",
		"First Log Time":       "最初のログ時刻",
		"Last Log Time":        "最後のログ時刻",
		"Duration":             "期間",
		"Detected FPS":         "検出された FPS",
		"Settings":             "設定",
		"Codec":                "コーデック",
		"FPS":                  "FPS",
		"Quality (CRF)":        "品質 (CRF)",
		"Bitrate":              "ビットレート",
		"Remux":                "リマックス",
		"Timestamp Overlay":    "タイムスタンプ表示",
		"Video":                "動画",
		"Output":               "出力",
		"Mode":                 "モード",
		"Frames":               "フレーム数",
		"Resolution":           "解像度",
		"File Size":            "ファイルサイズ",
		"No video created.":    "動画は作成されませんでした。",
		"Generated at":         "生成日時",
		"Run ID":               "実行 ID",
		"Item":                 "項目",
		"Value":                "値",
		"N/A":                  "なし",
		"Default":              "デフォルト",
		"Yes":                  "はい",
		"No":                   "いいえ",
	})
}
